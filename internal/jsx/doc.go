// Package jsx rewrites pasted SVG markup into a JSX snippet for an icon
// component. The rewrite is a fixed, ordered list of regex stages; it never
// parses the markup and never fails. Callers (CLI, gRPC service, pipeline
// stages) supply the text and a Mode and get the rewritten text back.
package jsx
