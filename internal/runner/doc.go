// Package runner implements the fallback policy: extraction profiles are tried
// strictly one after another until one succeeds. Every failure is kept, in
// attempt order, so the caller sees why each profile was rejected.
package runner
