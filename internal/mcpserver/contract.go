package mcpserver

// IDContract describes how note identifiers are stored, for LLM consumers
// that read or write notes managed by vaultid.
const IDContract = `# vaultid Identifier Contract

vaultid gives every Markdown note a stable identifier stored in its YAML
frontmatter.

## Storage

` + "```" + `markdown
---
title: Weekly standup
uuid: 7d444840-9dc0-11d1-b245-5ffdce74fad2
---

Body text.
` + "```" + `

## Rules

1. The frontmatter **key is the scheme tag** (` + "`uuid`, `cuid`, `nanoid`, `ulid`, `ksuid`" + `).
   The value is an opaque string.
2. Only files ending in ` + "`.md`" + ` are eligible. Paths that start with an
   excluded prefix are never touched.
3. An existing identifier is **never replaced** unless the caller passes
   ` + "`force: true`" + ` to ` + "`assign_id`" + `.
4. A note may carry identifiers under several schemes at once, for example
   after the active scheme was changed. This is valid and not reconciled.
5. Other frontmatter keys, their order, and the note body are preserved by
   every edit.

## Tools

- ` + "`list_schemes`" + `: registered schemes and which one is active.
- ` + "`get_stats`" + `: how many eligible notes carry each scheme.
- ` + "`assign_id`" + `: add (or with force, refresh) the id of one note.
- ` + "`bulk_ids`" + `: add or remove one scheme's ids across the whole vault.
`
