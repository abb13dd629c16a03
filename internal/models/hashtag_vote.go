package models

type HashtagVote struct {
	Hashtag   string `json:"hashtag"`
	VoteCount int    `json:"vote_count"`
}
