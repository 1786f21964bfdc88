/*
Package operation implements the rewrite engine and the operations the CLI runs.

	+-------------+      +-------------+      +-------------+
	|  Correlator |----->|BatchHandler |----->|   Engine    |
	| (pkg/state) |      | (expand map)|      | (per file)  |
	+-------------+      +-------------+      +------+------+
	                                                 |
	                                          +------+------+
	                                          |   status    |
	                                          | (disk I/O)  |
	                                          +-------------+

🎯 Purpose:
- Turns a finalized move map into include rewrites across the project
- Runs the one-shot move and the long-running watch session

🔄 Flow:
1. List candidate files through status.FileManager
2. Read, transform and write each file as one task, bounded by errgroup
3. Report each result to status.StatusReporter
4. Return a Summary; failures stay attached to their file

⚡ Key Responsibilities:
- RewriteFile is pure: content in, content out
- Files whose includes do not change are never written
- A failing file never stops its siblings

🤝 Interfaces:
- status.FileManager: reads, lists and atomically writes files
- status.StatusReporter: progress and per-file results
- include.Lookup: the read-only move map

🔍 Example:

	engine, err := operation.NewEngine(operation.Options{
		Files:      mgr,
		Reporter:   mgr,
		Root:       mgr.Root(),
		Extensions: cfg.Extensions,
	})
	summary, err := engine.Apply(ctx, moves)
*/
package operation
