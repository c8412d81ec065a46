// Package hash provides keyed digests for values that must never be stored or
// used as keys in the clear, such as phone numbers in cache keys.
package hash
