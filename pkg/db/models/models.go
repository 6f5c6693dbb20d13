package models

// All returns every persisted entity in migration order: referenced tables
// first so foreign keys resolve.
func All() []any {
	return []any{
		&User{},
		&Advert{},
		&Specification{},
		&Favorite{},
		&Review{},
		&Chat{},
		&Message{},
		&Deal{},
		&Payment{},
	}
}
