package mcpserver

// NoteFormat describes how notes are stored so that LLM consumers can
// write content that round-trips.
const NoteFormat = `# Pinnote Note Format

Every note is one UTF-8 file named ` + "`{title}.md`" + ` in the notes directory.
There are no sub-folders and no frontmatter.

## Titles

- The title is the file name without ` + "`.md`" + `.
- These characters are not allowed and are removed when a note is added:
  ` + "`" + `\ / : * ? " < > |` + "`" + `
- Titles are unique. Matching is exact and case-sensitive.

## Pinning

A note is pinned when its content starts with the exact line ` + "`#pinned`" + `
followed by a newline:

` + "```" + `markdown
#pinned
milk, eggs, bread
` + "```" + `

- ` + "`toggle_pin`" + ` adds or removes that line.
- ` + "`save_note`" + ` re-reads it: content starting with the line is pinned, content
  without it is unpinned.
- A note whose text legitimately begins with ` + "`#pinned`" + ` on its own line
  cannot be stored unpinned.

## Links and tags

- ` + "`[[Other note]]`" + ` links to the note titled "Other note";
  ` + "`[[Other note|label]]`" + ` links with a display label.
- ` + "`#tag`" + ` words in the body are indexed as tags for search.

## Listing order

Pinned notes come first, then titles sorted case-insensitively.
`
