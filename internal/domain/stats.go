package domain

import (
	"time"
)

// DailyCount - значение счетчика за один день (UTC)
type DailyCount struct {
	Day   time.Time `json:"day"`
	Total int64     `json:"total"`
}

type UserDailyCount struct {
	UserID   int64     `json:"uid"`
	Username string    `json:"username"`
	Day      time.Time `json:"day"`
	Total    int64     `json:"total"`
}

type MessageStats struct {
	MessageID int64 `json:"mid"`
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	Replies   int64 `json:"replies"`
}

type TrendingHashtag struct {
	Hashtag string `json:"hashtag"`
	Count   int64  `json:"count"`
}

const (
	StatsPosts    = "posts"
	StatsLikes    = "likes"
	StatsDislikes = "dislikes"
	StatsReplies  = "replies"
	StatsActive   = "active"
)
