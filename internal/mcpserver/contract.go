package mcpserver

// FixTableFormat describes the YAML fix table accepted by apply_fixes and
// produced by suggest_fixes.
const FixTableFormat = `# linkmend Fix Table Format

A fix table is a YAML document with a single ` + "`" + `fixes` + "`" + ` list. Each entry is a
literal substitution applied to one Markdown file.

` + "```" + `yaml
fixes:
  - file: 16 变形/css.md            # REQUIRED - relative to the docs root, or absolute inside it
    original: "![](视域 2.png)"      # REQUIRED - exact text to replace
    fixed: "![](视域2.png)"          # replacement text (may be empty)
` + "```" + `

## Rules

1. **Every occurrence** of ` + "`" + `original` + "`" + ` in the file is replaced, not just the first.
2. Entries for the same file are applied in table order to the same content.
3. A file is written back only when its content actually changed.
4. A file that cannot be read or written is reported as ` + "`" + `failed` + "`" + `; the other
   files are still processed.
5. Paths outside the docs root are rejected.
6. Quote ` + "`" + `original` + "`" + ` and ` + "`" + `fixed` + "`" + ` values: image links start with ` + "`" + `!` + "`" + `, which YAML
   treats as a tag marker when unquoted.

## Workflow

1. Call ` + "`" + `scan_images` + "`" + ` to see every image link whose path contains a space.
2. Call ` + "`" + `suggest_fixes` + "`" + ` to get a table for the critical issues (missing target,
   whitespace-free file present on disk).
3. Review it, then pass it to ` + "`" + `apply_fixes` + "`" + `, first with ` + "`" + `dry_run: true` + "`" + `.
`
