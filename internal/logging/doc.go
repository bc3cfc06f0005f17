// Package logging builds the logr.Logger used across beaver.
//
// The backend is zap: a human readable console core plus an optional JSON
// file core, both at the same level. Callers only see the logr API; debug
// output is logged at V(1).
package logging
