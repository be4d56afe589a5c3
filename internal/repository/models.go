package repository

// Models lists every GORM model owned by this service, for dev auto-migration.
func Models() []interface{} {
	return []interface{}{&UserModel{}, &ItemModel{}, &BookingModel{}}
}
