package repo

import (
	"context"
	"errors"
	"time"

	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/slug"
	"github.com/iceymoss/go-newsfeed/pkg/transaction"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepo 文章及其来源、分类、作者的数据访问。
// 所有方法都会使用 ctx 中的事务（如果有）。
type ArticleRepo struct {
	db *gorm.DB
}

func NewArticleRepo(db *gorm.DB) *ArticleRepo { return &ArticleRepo{db: db} }

func (r *ArticleRepo) conn(ctx context.Context) *gorm.DB {
	return transaction.GetTransactionOrDB(ctx, r.db)
}

// FindOrCreateSource 按 slug 或名称查找来源，不存在则创建
func (r *ArticleRepo) FindOrCreateSource(ctx context.Context, name string) (*objects.Source, error) {
	s := slug.Make(name)
	db := r.conn(ctx)

	q := db.Where("name = ?", name)
	if s != "" {
		q = db.Where("slug = ? OR name = ?", s, name)
	}

	var src objects.Source
	err := q.Order("id").Take(&src).Error
	if err == nil {
		return &src, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	src = objects.Source{Name: name, Slug: s, APIIdentifier: s, IsActive: true}
	if err := db.Create(&src).Error; err != nil {
		return nil, err
	}
	return &src, nil
}

// UpsertArticle 以 external_id 为键插入或更新，返回是否新建
func (r *ArticleRepo) UpsertArticle(ctx context.Context, a *objects.Article) (bool, error) {
	db := r.conn(ctx)

	var existing objects.Article
	err := db.Select("id", "created_at").Where("external_id = ?", a.ExternalID).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, db.Omit(clause.Associations).Create(a).Error
	case err != nil:
		return false, err
	}

	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	return false, db.Omit(clause.Associations).Save(a).Error
}

// FindOrCreateCategory 按 slug 查找，创建时名称首字母大写
func (r *ArticleRepo) FindOrCreateCategory(ctx context.Context, name string) (*objects.Category, error) {
	s := slug.Make(name)
	var cat objects.Category
	// 用字符串条件：结构体条件会忽略零值，空 slug 会变成无条件查询
	err := r.conn(ctx).
		Where("slug = ?", s).
		Attrs(objects.Category{Name: slug.UpperFirst(name), Slug: s}).
		FirstOrCreate(&cat).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// FindOrCreateAuthor 按 slug 查找，创建时保留原始名称
func (r *ArticleRepo) FindOrCreateAuthor(ctx context.Context, name string) (*objects.Author, error) {
	s := slug.Make(name)
	var au objects.Author
	err := r.conn(ctx).
		Where("slug = ?", s).
		Attrs(objects.Author{Name: name, Slug: s}).
		FirstOrCreate(&au).Error
	if err != nil {
		return nil, err
	}
	return &au, nil
}

// ReplaceCategories 用给定集合整体替换文章的分类
func (r *ArticleRepo) ReplaceCategories(ctx context.Context, a *objects.Article, cats []objects.Category) error {
	assoc := r.conn(ctx).Model(a).Association("Categories")
	if len(cats) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(cats)
}

// ReplaceAuthors 用给定集合整体替换文章的作者
func (r *ArticleRepo) ReplaceAuthors(ctx context.Context, a *objects.Article, authors []objects.Author) error {
	assoc := r.conn(ctx).Model(a).Association("Authors")
	if len(authors) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(authors)
}

func (r *ArticleRepo) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Source").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.id") }).
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.id") })
}

// FindByExternalID 加载文章及关联
func (r *ArticleRepo) FindByExternalID(ctx context.Context, externalID string) (*objects.Article, error) {
	var a objects.Article
	err := r.withRelations(r.conn(ctx)).Where("external_id = ?", externalID).Take(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// PublishedSince 返回 since 之后发布的文章，最新优先
func (r *ArticleRepo) PublishedSince(ctx context.Context, since time.Time) ([]objects.Article, error) {
	var list []objects.Article
	err := r.withRelations(r.conn(ctx)).
		Where("published_at >= ?", since).
		Order("published_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

// LatestPage 按发布时间倒序分页
func (r *ArticleRepo) LatestPage(ctx context.Context, offset, limit int) ([]objects.Article, int64, error) {
	db := r.conn(ctx)

	var total int64
	if err := db.Model(&objects.Article{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []objects.Article
	err := r.withRelations(db).
		Order("published_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

// DeletePublishedBefore 删除过期文章，关联行随外键级联删除
func (r *ArticleRepo) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.conn(ctx).Where("published_at < ?", cutoff).Delete(&objects.Article{})
	return res.RowsAffected, res.Error
}

// ListSources 所有来源，按名称排序
func (r *ArticleRepo) ListSources(ctx context.Context) ([]objects.Source, error) {
	var list []objects.Source
	return list, r.conn(ctx).Order("name").Find(&list).Error
}
