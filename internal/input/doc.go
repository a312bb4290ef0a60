// Package input turns serialized XML documents into markup event
// streams. It wraps encoding/xml, synthesizing namespace mapping events
// from xmlns attributes and attaching source positions to every event.
package input
