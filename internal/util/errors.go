package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrIslandNotFound    = errors.New("island not found")
	ErrStoryNotFound     = errors.New("story not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptFinished   = errors.New("attempt already finished")
	ErrAttemptForeign    = errors.New("attempt belongs to another user")
	ErrQuestionResolved  = errors.New("question already answered correctly")
	ErrQuestionForeign   = errors.New("question does not belong to the attempt's story")
	ErrOptionUnknown     = errors.New("selected option does not belong to the question")
	ErrEmptyAnswer       = errors.New("answer is empty")
)
