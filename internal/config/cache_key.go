package config

// CacheKeyStruct names the Redis keys and channels used by the service.
type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ScoreboardChannel returns the Redis PubSub channel carrying leaderboard updates.
func (r *CacheKeyStruct) ScoreboardChannel() string {
	return "quiz:scoreboard"
}

var CacheKey = NewCacheKeyStruct()
