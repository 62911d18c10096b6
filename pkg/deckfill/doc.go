// Package deckfill provides a placeholder template engine for PowerPoint
// presentations (PPTX).
//
// Deckfill renders {{key}} placeholders inside slide text while leaving
// every other byte of the deck untouched. Its defining feature is that a
// placeholder may be split across several runs of a paragraph, as PowerPoint
// routinely does when an author edits text, and the rendered value is spread
// back over those same runs so each keeps its original formatting.
//
// # Quick Start
//
// The simplest way to use deckfill is through the package-level functions:
//
//	tmpl, err := deckfill.PrepareFile("template.pptx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tmpl.Close()
//
//	context := deckfill.Context{
//	    "company": "Acme Corp",
//	    "sales":   980.0,
//	}
//
//	output, err := tmpl.Render(context)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path, err := deckfill.SaveRendered(output, "output")
//
// # Placeholder Syntax
//
// Placeholders are double curly braces around a key:
//
//	{{name}}          - Simple key
//	{{ name }}        - Keys are trimmed of surrounding whitespace
//	{{report.title}}  - Dotted keys reach into nested context maps
//
// A key missing from the context renders as an empty string. There are no
// control structures, functions, or expressions. Whatever is between the
// braces is the key.
//
// # How Rendering Works
//
// PowerPoint splits paragraph text into runs, each carrying its own
// formatting. A placeholder typed into a slide often ends up split across
// two or more runs:
//
//	run 0: "Sales: {{sa"
//	run 1: "les}} units"
//
// Deckfill concatenates the runs of each paragraph, resolves placeholders
// against the full paragraph text, and then reflows the rendered text back
// into the original runs. Text outside placeholders stays in the run it came
// from. A rendered value is divided across the runs its placeholder occupied
// in proportion to how much of the placeholder each run held, so with
// sales=980.0 the example above renders as
//
//	run 0: "Sales: 98"
//	run 1: "0.0 units"
//
// and both runs keep their formatting. Runs may end up empty but are never
// removed, and run properties are never touched.
//
// # Architecture
//
// The package separates scanning from rendering:
//
//   - PptxReader opens the deck archive and orders the slide parts
//   - ScanSlide records the byte spans of run text inside each slide part
//   - Resolve and ReflowRuns compute the rendered per-run texts
//   - Rendering splices the new texts into the original slide bytes
//
// Because modified slide parts are patched rather than re-marshaled, and
// unmodified parts are copied verbatim, everything the scanner does not
// understand (themes, layouts, media, animations) survives untouched.
//
// # Configuration
//
//	config := &deckfill.Config{
//	    TemplatePath: "template.pptx",
//	    OutputDir:    "output",
//	    LogLevel:     "info",
//	    CacheMaxSize: 10,
//	    CacheTTL:     30 * time.Minute,
//	}
//	engine := deckfill.NewWithConfig(config)
//
// Configuration can also be read from DECKFILL_* environment variables with
// ConfigFromEnvironment or NewConfigWithDefaults. Configuration is always
// passed explicitly; the package keeps no mutable global state.
//
// # Validation
//
// ValidateDeckSyntax lints a deck for unclosed {{ openers and empty keys
// without rendering it, and ExtractPlaceholders lists every placeholder a
// deck contains. Both report stable locations (slide, paragraph, run, and
// rune offsets) suitable for pointing an author at the problem.
//
// # Thread Safety
//
// PreparedTemplate is safe for concurrent use. Multiple goroutines can call
// Render() on the same template simultaneously. The Engine and its cache are
// also thread-safe.
//
// # PPTX File Structure
//
// PPTX files are ZIP archives of XML parts. Slides live under ppt/slides/
// and their order is defined by the sldIdLst in ppt/presentation.xml,
// resolved through the presentation's relationships part. Within a slide,
// deckfill only reads text runs (a:r/a:t) inside presentation text bodies
// (p:txBody); table cell text and fields are left alone.
//
// # Limitations
//
// Placeholders cannot span paragraphs or cross a line break inside a
// paragraph. Table cell text, chart text, and speaker notes are not
// rendered.
package deckfill
