/*
Package rewrite scans a directory tree and rewrites files in place when the
text rules change their content.

	+-------------+     +------------+     +--------------+
	|  Candidates  | --> |  Replacer  | --> |  WriteFile   |
	| (doublestar) |     | (pkg/text) |     | (if changed) |
	+-------------+     +------------+     +--------------+
	                          |
	                    +-----+------+
	                    | ScanResult |
	                    +------------+

🔄 Flow:
1. Stat the root; a missing root fails with ErrRootNotFound before any file access
2. Glob every file ending in the extension and drop excluded paths
3. For each file: read fully, apply every rule in order, compare bytes
4. Write the new content only if it differs, and record the path as fixed
5. Record per-file failures and move on to the next file

⚡ Guarantees:
- A file is fixed iff its bytes changed; unchanged files are never written
- One bad file never aborts the run
- Files are processed one at a time; an interrupted run leaves earlier
  rewrites in place and later files untouched
- No backups are made
*/
package rewrite
