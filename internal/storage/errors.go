// Package storage содержит общие ошибки слоя хранения.
package storage

import "errors"

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists - нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrSlugTaken - slug уже занят другим резюме.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrStaleWrite - условное обновление не применилось: запись уже изменена другим запросом.
	ErrStaleWrite = errors.New("stale write")
)
