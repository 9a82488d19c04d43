package common

// UnknownStr is the String() fallback for enum values outside their defined range.
const UnknownStr = "unknown"
