// Package serialize renders mapped objects back into payloads.
//
// Serialization runs the mapper in reverse. An object is first projected
// through the accessor table of its shape into a payload object whose keys
// are field names, with times rendered in the preferred date format of the
// mapping. The serialization mapping, normally the Inverse of the mapping
// that loaded the object, then maps that projection onto a Dictionary.
package serialize
