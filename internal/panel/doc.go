// Package panel serves the dashboard front-end.
//
// Assets come from a directory on disk when one is configured (so a
// front-end build can be swapped without recompiling) or from the minimal
// dashboard embedded in the binary. Unknown paths fall back to index.html so
// client-side routes resolve.
package panel
