package server

// Request/response shapes mirror the protocol the game client already
// speaks: POST bodies, snake_case fields, enum values as integers.

type userCreateRequest struct {
	UserName     string `json:"user_name"`
	LeaderCardID int    `json:"leader_card_id"`
}

type userCreateResponse struct {
	UserToken string `json:"user_token"`
}

type userResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	LeaderCardID int    `json:"leader_card_id"`
}

type roomCreateRequest struct {
	LiveID           int64 `json:"live_id"`
	SelectDifficulty int   `json:"select_difficulty"`
}

type roomCreateResponse struct {
	RoomID int64 `json:"room_id"`
}

type roomListRequest struct {
	LiveID int64 `json:"live_id"`
}

type roomInfo struct {
	RoomID          int64 `json:"room_id"`
	LiveID          int64 `json:"live_id"`
	JoinedUserCount int   `json:"joined_user_count"`
	MaxUserCount    int   `json:"max_user_count"`
}

type roomListResponse struct {
	RoomInfoList []roomInfo `json:"room_info_list"`
}

type roomJoinRequest struct {
	RoomID           int64 `json:"room_id"`
	SelectDifficulty int   `json:"select_difficulty"`
}

type roomJoinResponse struct {
	JoinRoomResult int `json:"join_room_result"`
}

type roomWaitRequest struct {
	RoomID int64 `json:"room_id"`
}

type roomUser struct {
	UserID           int64  `json:"user_id"`
	UserName         string `json:"user_name"`
	LeaderCardID     int    `json:"leader_card_id"`
	SelectDifficulty int    `json:"select_difficulty"`
	IsMe             bool   `json:"is_me"`
	IsHost           bool   `json:"is_host"`
}

type roomWaitResponse struct {
	Status       int        `json:"status"`
	RoomUserList []roomUser `json:"room_user_list"`
}

type roomStartRequest struct {
	RoomID int64 `json:"room_id"`
}

type roomEndRequest struct {
	RoomID         int64 `json:"room_id"`
	JudgeCountList []int `json:"judge_count_list"`
	Score          int   `json:"score"`
}

type roomResultRequest struct {
	RoomID int64 `json:"room_id"`
}

type resultUser struct {
	UserID         int64 `json:"user_id"`
	JudgeCountList []int `json:"judge_count_list"`
	Score          int   `json:"score"`
}

type roomResultResponse struct {
	ResultUserList []resultUser `json:"result_user_list"`
}

type roomLeaveRequest struct {
	RoomID int64 `json:"room_id"`
}

type emptyResponse struct{}
