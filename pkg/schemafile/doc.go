// Package schemafile declares payload maps from JSON or YAML documents.
//
// A document lists payloads by name. Each payload lists its fields in
// declaration order along with their flags, default, label, validator
// descriptor, custom data and named setter mutators. A field may instead name
// another payload of the same catalog, in which case incoming values are
// imported into a fresh instance of that payload:
//
//	payloads:
//	  - name: PersonMap
//	    fields:
//	      - key: name
//	        required: true
//	        setters: [trim, title]
//	      - key: email
//	        required: true
//	        validator: {kind: email}
//	      - key: address
//	        payload: AddressMap
//
// Documents are parsed as JSON first and YAML second.
package schemafile
