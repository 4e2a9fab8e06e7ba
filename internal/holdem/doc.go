// Package holdem implements the rules of a single no-limit Texas Hold'em hand as pure
// functions over a seat-ordered slice of players: blind posting, turn order, action
// validation and application, round completion, side pots and pot awards.
//
// Nothing here owns time, I/O or locking. The table package drives these functions
// from its state machine and is the only writer of Player fields.
package holdem
