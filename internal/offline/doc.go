// Package offline keeps a shopping client usable while the server cannot be
// reached.
//
// Item mutations that cannot be sent are appended to a durable log (Queue,
// backed by SQLiteStore) and applied to the local view right away. Items
// created offline get a temporary id (see TempIDPrefix). When connectivity
// returns, Drain replays the log strictly in order and stops at the first
// entry that fails, so a later change to an item is never applied before an
// earlier one. A replayed creation rewrites the temporary id of every later
// entry to the id the server assigned.
//
// Session ties a remote shopping.Service, the queue and a private cache
// together and is itself a shopping.Service. Scheduler flushes a session on a
// cron schedule.
package offline
