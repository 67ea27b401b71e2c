package app

// RoundEndThreshold ends the round once a successful turn shrinks the shared
// deck to this many cards or fewer (but not to zero).
const RoundEndThreshold = 9
