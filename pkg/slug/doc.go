// Package slug turns display names into URL-safe identifiers, used for
// tenant slugs.
//
//	slug.Make("Café Société")                        // "cafe-societe"
//	slug.Make("Acme", slug.WithSuffix(6))            // "acme-x7g3k2"
//	slug.Make("A very long name", slug.MaxLength(8)) // "a-very-l"
package slug
