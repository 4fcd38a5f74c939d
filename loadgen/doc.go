// Package loadgen drives a timeline store with a population of bots.
//
// A Controller creates the bots, wires them into a ring follow graph and activates each bot
// repeatedly on a bounded Scheduler, with a random pause between two activations of the same bot.
// One activation reads the bot's timeline and posts one synthetic bark.
package loadgen
