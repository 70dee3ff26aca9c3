// Package services holds the server business logic behind the REST
// handlers: entry management, admin authentication and settings.
package services
