// Package script holds the data a slam-file template is rendered against: the
// experiment-wide Context plus its ordered Scan and Frame sequences.
//
// Scan and Frame expose their fields to template engines through explicit
// Attr switches rather than reflection, and Scans/Frames satisfy the
// sequence contract used by the native engine in pkg/render.
package script
