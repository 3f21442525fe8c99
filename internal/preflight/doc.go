// Package preflight provides readiness checks for the filesystem paths,
// credentials, and remote services pitlane depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunLocal before scheduling passes and refuses to
//     start when a local check fails.
//   - The CLI "pitlane doctor" command runs RunAll, which adds the feed and
//     debrid connectivity checks, and prints every result.
package preflight
