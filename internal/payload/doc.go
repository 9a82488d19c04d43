// Package payload defines the value tree every parser produces and every
// mapping reads from.
//
// A Value is a closed tagged union over the six shapes a parsed document can
// take: null, bool, number, string, array and object. Objects keep the key
// order observed by the parser so that mapping results are deterministic.
//
// Numbers keep their literal text. Int64 and Float64 convert on demand, which
// means a 64-bit identifier survives a JSON round trip without passing
// through float64.
package payload
