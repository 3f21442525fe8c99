// Package sessions defines the canonical session categories of a race
// weekend and the ordered rule table that maps free-form session names and
// resolver filenames onto them.
//
// Classification rejects blocklisted non-session programming first, then
// walks Rules() in order and returns the first match. Weekend format
// detection and the required-session test reuse the same classification so
// the parser and the completeness check never disagree.
package sessions
