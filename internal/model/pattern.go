package model

// Pattern правило автоответа
type Pattern struct {
	ID       int64  `json:"id"`
	Pattern  string `json:"pattern"`
	Response string `json:"response"`
}

// PersonalizedName имя, на которое бот отзывается в групповых чатах
type PersonalizedName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
