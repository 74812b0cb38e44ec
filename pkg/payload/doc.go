// Package payload implements the data-transfer-object engine. A Map declares
// its fields once at construction time and routes every write through an
// optional per-key setter; an Array is the freeform sibling whose concrete
// types supply their own import and validation hooks. Both containers export
// to an ordered Values mapping, encode to JSON through a configurable
// json-iterator encoder, and persist to a msgpack blob that restores the same
// keys, values and field properties in the same order.
//
// Exported values are normalised by probing capabilities in a fixed order:
// nested payloads (Exporter), json.Marshaler values, iterators (iter.Seq and
// iter.Seq2), Mappable values, and finally the raw value.
package payload
