package models

type Database struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSL      string
	Timezone string
	Path     string
}
