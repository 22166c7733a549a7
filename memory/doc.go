// Package memory maintains bounded conversation history for follow-up
// queries.
//
// A Memory keeps a rolling window of recent turns, each annotated with
// the player names and stat categories it mentioned. Context aggregates
// the most recent turns so reference resolution ("how about last week",
// "what about his rushing yards") can reuse earlier entities.
package memory
