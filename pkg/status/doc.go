/*
Package status manages file access and status tracking for incwatch.

	            +-------------+
	            |   Status    |
	            |  (Storage)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+-----+
	|   Files   |           | Progress |
	| (Storage) |           | (UI/UX)  |
	+-----------+           +----------+

🎯 Purpose:
- Answers what kind of entry lives at a path (file, directory, gone)
- Lists the tracked source files of a tree
- Reads and atomically rewrites source files
- Tracks what happened to each candidate file in a batch

🔄 Flow:
1. The correlator asks Stat to classify each move
2. Expansion and the rewrite engine call ListFiles
3. The rewrite engine reads, transforms, and hands changed content back
4. Each outcome is tracked and reported

🤝 Interfaces:
- FileManager: Stat, ListFiles, ReadFile, WriteFileAtomic
- StatusReporter: per-file outcomes and batch progress
- FileFormatter: status messages

📝 Notes:
Paths crossing this package are absolute. Ignore patterns are doublestar
globs matched against the path relative to the project root, so a pattern
like "build/**" hides generated trees from both listing and watching.

🔍 Example:

	mgr, err := status.New(status.Options{
		Root:       ".",
		Extensions: []string{"c", "cpp", "h", "hpp"},
	})
	files, err := mgr.ListFiles(ctx, mgr.Root())
*/
package status
