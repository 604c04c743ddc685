package mocks

//go:generate go run go.uber.org/mock/mockgen -destination=emailsender_mock.go -package=mocks github.com/syberry/bakery-api/internal/ports EmailSender
