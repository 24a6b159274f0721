package mcpserver

// LogFormatContract describes the event log that LLM consumers read through the
// file_history tool.
const LogFormatContract = `# taglog Event Log Format

The event log is an append-only UTF-8 text file. Each line is one record:

` + "```" + `
<timestamp> level=<level> event=<event> file=<name> app=<app> [reason=<reason>] [tags=<t1,t2>]
` + "```" + `

- **timestamp**: local time, ` + "`" + `YYYY-MM-DDTHH:MM:SS.ffffff` + "`" + `. Sorts lexicographically.
- **level**: ` + "`" + `info` + "`" + ` or ` + "`" + `warn` + "`" + `.
- **file**: base name of the journal file, e.g. ` + "`" + `16-10-2026.md` + "`" + `.
- **tags**: comma-joined, no spaces. An empty value means the file had no tags.

## Events

| event | level | meaning |
|---|---|---|
| tag_injected | info | front matter was added to a file that had none |
| tag_updated | info | front-matter tags differ from the last recorded tags |
| tag_skipped | warn | the file was not reconciled; see reason |
| daily_log_initialized | info | today's journal file was created |
| daily_log_finalized | info | end-of-run marker for today's file, written once per day |

## Skip reasons

| reason | meaning |
|---|---|
| read_error | the file could not be read |
| malformed_front_matter | the front-matter mapping has no tags key, or tags is not a list of strings |
| no_tags_found | no front matter and no inline #tags on line 3 |
| write_error | injecting front matter failed; the file is unchanged |
| mtime_error | the file's modification time could not be read |

## Last known tags

The last known tags of a file come from its newest ` + "`" + `info` + "`" + ` record.
Warn records never change them.
`
