package routes

import (
	"encoding/json"
	"strconv"
	"strings"

	"travana-server/models"
	"travana-server/storage"
	"travana-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateBlogPostInput struct {
	Title         string   `json:"title" validate:"required,max=256"`
	Body          string   `json:"body" validate:"required"`
	CoverImageURL string   `json:"coverImageURL"`
	CategoryID    *uint    `json:"categoryID"`
	Tags          []string `json:"tags"`
	Published     *bool    `json:"published"`
}

type UpdateBlogPostInput struct {
	Title         *string  `json:"title"`
	Body          *string  `json:"body"`
	CoverImageURL *string  `json:"coverImageURL"`
	CategoryID    *uint    `json:"categoryID"`
	Tags          []string `json:"tags"`
	Published     *bool    `json:"published"`
}

type CreateBlogCommentInput struct {
	Content  string `json:"content" validate:"required,max=4000"`
	ParentID *uint  `json:"parentID"`
}

func CreateBlogPost(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateBlogPostInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	post := models.BlogPost{
		AuthorID:      userID,
		Title:         input.Title,
		Slug:          uniqueSlug(input.Title),
		Body:          input.Body,
		CoverImageURL: input.CoverImageURL,
		CategoryID:    input.CategoryID,
		Tags:          tagsJSON,
		Published:     input.Published,
	}

	if err := storage.DB.Create(&post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(post)
}

// GetBlogPosts returns published posts with pagination, optionally filtered
// by category.
func GetBlogPosts(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 10)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 50 {
		perPage = 10
	}

	query := storage.DB.Model(&models.BlogPost{}).Where("published = ?", true)
	if categoryID := ctx.URLParam("categoryID"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var posts []models.BlogPost
	if err := query.Preload("Author").Preload("Category").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&posts).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, posts, page, perPage, total)
}

func GetBlogPostBySlug(ctx iris.Context) {
	slug := ctx.Params().Get("slug")

	var post models.BlogPost
	if err := storage.DB.Preload("Author").Preload("Category").
		Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Post not found")
		return
	}

	ctx.JSON(post)
}

func UpdateBlogPost(ctx iris.Context) {
	post, ok := blogPostEditableByCaller(ctx)
	if !ok {
		return
	}

	var input UpdateBlogPostInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Body != nil {
		post.Body = *input.Body
	}
	if input.CoverImageURL != nil {
		post.CoverImageURL = *input.CoverImageURL
	}
	if input.CategoryID != nil {
		post.CategoryID = input.CategoryID
	}
	if input.Tags != nil {
		tagsJSON, _ := json.Marshal(input.Tags)
		post.Tags = tagsJSON
	}
	if input.Published != nil {
		post.Published = input.Published
	}

	if err := storage.DB.Save(post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(post)
}

func DeleteBlogPost(ctx iris.Context) {
	post, ok := blogPostEditableByCaller(ctx)
	if !ok {
		return
	}

	if err := storage.DB.Delete(post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "message": "Post deleted"})
}

func GetBlogComments(ctx iris.Context) {
	postID := ctx.Params().Get("id")

	var comments []models.BlogComment
	res := storage.DB.Preload("User").Preload("Replies").Preload("Replies.User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("posted_at DESC").Find(&comments)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(comments)
}

func CreateBlogComment(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	postID := ctx.Params().Get("id")

	var input CreateBlogCommentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var post models.BlogPost
	if err := storage.DB.First(&post, postID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Post not found")
		return
	}

	comment := models.BlogComment{
		PostID:   post.ID,
		UserID:   userID,
		Content:  input.Content,
		ParentID: input.ParentID,
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&post).
			Update("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("User").First(&comment, comment.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(comment)
}

func DeleteBlogComment(ctx iris.Context) {
	claims := currentClaims(ctx)
	if claims == nil {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing token", ctx)
		return
	}

	commentID := ctx.Params().Get("commentID")

	var comment models.BlogComment
	if err := storage.DB.First(&comment, commentID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Comment not found")
		return
	}

	isAdmin := claims.Role == "admin" || claims.Role == "super_admin"
	if comment.UserID != claims.ID && !isAdmin {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "You can only delete your own comments"})
		return
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.BlogPost{}).Where("id = ?", comment.PostID).
			Update("comments_count", gorm.Expr("GREATEST(comments_count - 1, 0)")).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// ToggleBlogLike likes or unlikes a post for the authenticated user and
// keeps the denormalized counter in step.
func ToggleBlogLike(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	postID := ctx.Params().Get("id")

	var post models.BlogPost
	if err := storage.DB.First(&post, postID).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Post not found")
		return
	}

	var liked bool
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.BlogLike
		res := tx.Where("post_id = ? AND user_id = ?", post.ID, userID).First(&existing)
		if res.Error == nil {
			if err := tx.Unscoped().Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&post).
				Update("likes_count", gorm.Expr("GREATEST(likes_count - 1, 0)")).Error
		}

		like := models.BlogLike{PostID: post.ID, UserID: userID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return tx.Model(&post).
			Update("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "liked": liked})
}

func GetBlogCategories(ctx iris.Context) {
	var categories []models.BlogCategory
	if err := storage.DB.Order("sort_order ASC").Find(&categories).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    categories,
		"count":   len(categories),
	})
}

type BlogCategoryInput struct {
	Name      string `json:"name" validate:"required,max=128"`
	SortOrder int    `json:"sortOrder"`
}

func CreateBlogCategory(ctx iris.Context) {
	var input BlogCategoryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	category := models.BlogCategory{
		Name:      input.Name,
		Slug:      slugify(input.Name),
		SortOrder: input.SortOrder,
	}
	if err := storage.DB.Create(&category).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(category)
}

func blogPostEditableByCaller(ctx iris.Context) (*models.BlogPost, bool) {
	claims := currentClaims(ctx)
	if claims == nil {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing token", ctx)
		return nil, false
	}

	id := ctx.Params().Get("id")

	var post models.BlogPost
	if err := storage.DB.First(&post, id).Error; err != nil {
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Post not found")
		return nil, false
	}

	isAdmin := claims.Role == "admin" || claims.Role == "super_admin"
	if post.AuthorID != claims.ID && !isAdmin {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"message": "You can only edit your own posts"})
		return nil, false
	}

	return &post, true
}

func slugify(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}

// uniqueSlug appends a numeric suffix when the natural slug is taken.
func uniqueSlug(title string) string {
	base := slugify(title)
	if base == "" {
		base = "post"
	}

	slug := base
	for i := 2; ; i++ {
		var count int64
		storage.DB.Model(&models.BlogPost{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}
