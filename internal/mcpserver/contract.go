package mcpserver

// Guide describes notes, searches and images for LLM consumers.
const Guide = `# notebox Guide

## Notes

Each note has:

- ` + "`id`" + ` (integer, assigned on create, never reused)
- ` + "`title`" + ` (required, must not be blank)
- ` + "`content`" + ` (free text, may be empty)
- ` + "`created_at`" + ` / ` + "`updated_at`" + ` (UTC; updated_at is never earlier than created_at)
- an optional image (png, jpg, jpeg or gif)

` + "`update_note`" + ` replaces all three of title, content and image. To keep an
image, attach it again with ` + "`attach_image`" + ` or pass its path.

## Searching

` + "`search_notes`" + ` takes a ` + "`kind`" + `:

| kind  | value          | matches                                        |
|-------|----------------|------------------------------------------------|
| Date  | ` + "`YYYY-MM-DD`" + `   | notes created OR updated on that UTC day       |
| Title | any substring  | title contains value, case-insensitive         |
| Text  | any substring  | content contains value, case-insensitive       |

` + "`%`" + ` and ` + "`_`" + ` are matched literally. Results come in id order, a page at a time.
"No notes found" means nothing matched.

## Images

- Use ` + "`attach_image`" + ` with a ` + "`data:image/png;base64,...`" + ` URI or an https URL.
- Only png, jpg, jpeg and gif are stored; the file content must match the extension.
- A rejected format on create or update is not an error: the note is saved
  without an image and the result carries a ` + "`warning`" + `.
`
