// Package ghostflow automates a content-production pipeline around a
// resumable, interruptible workflow engine: analyze the author's writing
// style, discover candidate topics, draft an article, revise it, offer image
// options, and publish or schedule the result — pausing twice for human
// decisions (topic choice, image and schedule choice).
//
// # Core Concepts
//
//  1. Controller
//  2. Graph
//  3. State
//  4. Collaborators
//  5. Checkpoint stores
//
// # Controller
//
// The Controller drives one session per key through the pipeline graph. It
// exposes three operations:
//
//   - Start: create the session and run until the first pause point
//   - Resume: apply a field patch (the human's decision) and run forward
//   - Inspect: read the current state and pending nodes without executing
//
// Execution checkpoints after every node, so a crash mid-node loses at most
// that node's work. At most one execution is in flight per session key:
// concurrent starts fail with ErrAlreadyRunning, concurrent resumes with
// ErrConcurrentResume.
//
// # Graph
//
// The pipeline is a declared graph of named nodes:
//
//	style → research → [topics found?] → draft → review → image → publish
//
// When research finds nothing, the session ends immediately. Execution
// always suspends before draft (for topic selection) and after image (for
// image and schedule selection). Failures inside a node are step-scoped:
// the cursor stays at the failed node and a later resume retries exactly
// that node.
//
// # State
//
// flow.State is a typed record accumulated across the session: the style
// persona, research results, selected topic, draft, final draft, image
// options, selected image, scheduled time, and an append-only log with one
// entry per completed node. Nodes and resume patches produce flow.Update
// values that are merged field-by-field into the next snapshot.
//
// # Collaborators
//
// Every external capability — content sources, relevance classification,
// text generation, image search, publishing, the scheduled-post store — is
// a small interface in pkg/collab, injected at construction time.
// Production adapters live in internal/adapters; tests inject doubles.
//
// # Checkpoint stores
//
// Sessions can be checkpointed in-memory (tests and development; in-flight
// sessions die with the process), in SQLite (the durable default), or in
// Redis (for deployments with a shared instance). Scheduled posts are
// persisted separately in SQLite and delivered by a background poller with
// a start/stop lifecycle.
//
// For a complete wiring example, see cmd/ghostflow.
package ghostflow
