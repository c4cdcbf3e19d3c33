// Package project stores the portfolio's gallery entries.
package project

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("project: not found")
	ErrInvalid  = errors.New("project: invalid input")
)

type Category string

const (
	Photography Category = "Photography"
	Development Category = "Development"
	Other       Category = "Other"
	Article     Category = "Article"

	// All is the list filter that matches every category.
	All Category = "All"
)

func (c Category) Valid() bool {
	switch c {
	case Photography, Development, Other, Article:
		return true
	}
	return false
}

type BilingualTitle struct {
	Zh string `json:"zh"`
	En string `json:"en"`
}

// Project is a gallery entry. The category-specific fields are only
// populated by Get.
type Project struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       Category       `json:"category"`
	Tags           []string       `json:"tags"`
	Images         []string       `json:"images"`
	BilingualTitle BilingualTitle `json:"bilingualTitle"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	Thoughts       string `json:"thoughts,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
	GithubURL      string `json:"githubUrl,omitempty"`
	Readme         string `json:"readme,omitempty"`
	ExternalLink   string `json:"externalLink,omitempty"`
	Introduction   string `json:"introduction,omitempty"`
}

// Input is the writable part of a project. Image is a comma-separated
// list accepted when Images is empty.
type Input struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`

	Thoughts       string `json:"thoughts"`
	AdditionalInfo string `json:"additionalInfo"`
	GithubURL      string `json:"githubUrl"`
	Readme         string `json:"readme"`
	ExternalLink   string `json:"externalLink"`
	Introduction   string `json:"introduction"`
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.Join(ErrInvalid, errors.New("title is required"))
	}
	if !in.Category.Valid() {
		return errors.Join(ErrInvalid, errors.New("unknown category "+string(in.Category)))
	}
	return nil
}

// ImageList returns the images in display order.
func (in Input) ImageList() []string {
	if len(in.Images) > 0 {
		return in.Images
	}
	return splitList(in.Image)
}

type ListQuery struct {
	Page     int
	Size     int
	Category Category
}

func (q ListQuery) normalize(defaultSize int) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = defaultSize
	}
	if q.Category == "" {
		q.Category = All
	}
	return q
}

type PageResult struct {
	Total int64     `json:"total"`
	Items []Project `json:"items"`
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}
