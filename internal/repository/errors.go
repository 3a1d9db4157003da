package repository

import (
	"errors"

	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

var (
	// ErrNotFound обновляемая запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists запись с таким ключом уже есть
	ErrAlreadyExists = base.ErrAlreadyExists
)
