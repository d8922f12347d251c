package domain

// Области ограничения частоты запросов. Счетчик ведется на пару (область, IP).
const (
	RateLimitScopeRegister = "register"
	RateLimitScopeLogin    = "login"
)
