// Package domain contains the core business entities and value objects
// for the Roundtable discussion engine. The domain layer has no
// dependencies on infrastructure - it defines what chunks, speakers,
// retrieval results, and discussion transcripts are, independent of how
// they are stored or generated.
package domain
