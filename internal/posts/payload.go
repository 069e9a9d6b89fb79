package posts

type CreateReq struct {
	Text string `json:"text" validate:"required" msg:"Text is required"`
}

type CommentReq struct {
	Text string `json:"text" validate:"required" msg:"Text is required"`
}
