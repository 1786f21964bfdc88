/*
Package config manages configuration parsing and validation for incwatch.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Loads the project settings from .incwatch.yaml, or an explicit file
- Picks the parser from the file extension
- Applies defaults and validates every value

🔄 Flow:
1. Reads configuration from file (or starts from defaults)
2. Parses format-specific syntax
3. Validate fills defaults, normalizes extensions, compiles the include pattern
4. Provides validated config to the CLI

⚙️ Settings:
- root: project root, relative to the config file
- extensions: tracked source extensions (c, cpp, h, hpp)
- debounce: quiet window before a batch is processed (200ms)
- include_pattern: regexp with one capture group for the literal
- ignore_patterns: doublestar globs never scanned or watched (.git/**, build/**)
- concurrency: parallel file rewrites (number of CPUs)
- dry_run: report changes without writing

HCL files can use num_cpu and env.NAME in expressions:

	concurrency = num_cpu * 2
	root        = env.PROJECT_ROOT

🔍 Example:

	cfg, err := config.LoadDefault(ctx, ".")
	if err != nil {
		return err
	}
	window := cfg.DebounceWindow()
*/
package config
