package models

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	// DefaultViewCacheTTL время жизни кэша карточек предметов
	DefaultViewCacheTTL = 5 * 60 // 5 минут в секундах

	// DefaultPageSize размер страницы по умолчанию
	DefaultPageSize = 10

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// RateLimitRPS запросов в секунду на пользователя
	RateLimitRPS = 20

	// RateLimitBurst допустимый всплеск запросов
	RateLimitBurst = 5
)
