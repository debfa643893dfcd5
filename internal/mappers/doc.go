// Package mappers provides one Mapper per native record kind. Each mapper
// copies a record's fields onto a converted object and resolves the
// records it references through the MapScope it is given, never directly.
//
// Mappers are registered with the Registry at startup.
package mappers
