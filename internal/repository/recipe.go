package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

const recipeColumns = `id, name, description, ingredients, instructions, cooking_time,
	servings, difficulty, tags, image, create_time, update_time`

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	list := []string{}
	if raw == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func scanRecipe(sc rowScanner) (models.Recipe, error) {
	var (
		r                              models.Recipe
		description, image             sql.NullString
		ingredients, instructions, tag string
		createTime, updateTime         int64
	)
	err := sc.Scan(&r.ID, &r.Name, &description, &ingredients, &instructions, &r.CookingTime,
		&r.Servings, &r.Difficulty, &tag, &image, &createTime, &updateTime)
	if err != nil {
		return models.Recipe{}, err
	}
	if r.Ingredients, err = decodeList(ingredients); err != nil {
		return models.Recipe{}, fmt.Errorf("decode ingredients: %w", err)
	}
	if r.Instructions, err = decodeList(instructions); err != nil {
		return models.Recipe{}, fmt.Errorf("decode instructions: %w", err)
	}
	if r.Tags, err = decodeList(tag); err != nil {
		return models.Recipe{}, fmt.Errorf("decode tags: %w", err)
	}
	r.Description = stringPtr(description)
	r.Image = stringPtr(image)
	r.CreateTime = fromMillis(createTime)
	r.UpdateTime = fromMillis(updateTime)
	return r, nil
}

func queryRecipes(ctx context.Context, q querier, where string, args ...any) ([]models.Recipe, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

func insertRecipe(ctx context.Context, q querier, r models.Recipe) error {
	ingredients, err := encodeList(r.Ingredients)
	if err != nil {
		return err
	}
	instructions, err := encodeList(r.Instructions)
	if err != nil {
		return err
	}
	tags, err := encodeList(models.UniqueTags(r.Tags))
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO recipes (`+recipeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, nullString(r.Description), ingredients, instructions, r.CookingTime,
		r.Servings, string(r.Difficulty), tags, nullString(r.Image),
		millis(r.CreateTime), millis(r.UpdateTime))
	return err
}

// AddRecipe assigns an id and timestamps to r and persists it.
func (s *Store) AddRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	now := s.Now()
	r.ID = s.NewID()
	r.CreateTime = now
	r.UpdateTime = now
	r.Tags = models.UniqueTags(r.Tags)
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	if err := insertRecipe(ctx, s.DB, r); err != nil {
		return models.Recipe{}, fmt.Errorf("AddRecipe: %w", err)
	}
	return r, nil
}

// GetRecipe returns the recipe with id, or nil.
func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetRecipe: %w", err)
	}
	return &r, nil
}

// GetRecipes returns every recipe, newest first.
func (s *Store) GetRecipes(ctx context.Context) ([]models.Recipe, error) {
	return queryRecipes(ctx, s.DB, `ORDER BY create_time DESC, id`)
}

// SearchRecipes returns the recipes whose name or description contains sub.
func (s *Store) SearchRecipes(ctx context.Context, sub string) ([]models.Recipe, error) {
	p := likePattern(sub)
	return queryRecipes(ctx, s.DB,
		`WHERE name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' ORDER BY name, id`, p, p)
}

// RecipesByTag returns the recipes carrying tag.
func (s *Store) RecipesByTag(ctx context.Context, tag string) ([]models.Recipe, error) {
	return queryRecipes(ctx, s.DB,
		`WHERE EXISTS (SELECT 1 FROM json_each(recipes.tags) WHERE json_each.value = ?) ORDER BY name, id`, tag)
}

// UpdateRecipe applies the non-nil fields of p to the recipe with id.
func (s *Store) UpdateRecipe(ctx context.Context, id string, p models.RecipePatch) error {
	var l setList
	if p.Name != nil {
		l.add("name", *p.Name)
	}
	if p.Description != nil {
		l.add("description", *p.Description)
	}
	if p.Ingredients != nil {
		raw, err := encodeList(*p.Ingredients)
		if err != nil {
			return fmt.Errorf("encode ingredients: %w", err)
		}
		l.add("ingredients", raw)
	}
	if p.Instructions != nil {
		raw, err := encodeList(*p.Instructions)
		if err != nil {
			return fmt.Errorf("encode instructions: %w", err)
		}
		l.add("instructions", raw)
	}
	if p.Tags != nil {
		raw, err := encodeList(models.UniqueTags(*p.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		l.add("tags", raw)
	}
	if p.CookingTime != nil {
		l.add("cooking_time", *p.CookingTime)
	}
	if p.Servings != nil {
		l.add("servings", *p.Servings)
	}
	if p.Difficulty != nil {
		l.add("difficulty", string(*p.Difficulty))
	}
	if p.Image != nil {
		l.add("image", *p.Image)
	}
	l.add("update_time", millis(s.Now()))
	return l.exec(ctx, s.DB, "recipes", id)
}

// DeleteRecipe removes the recipe with id. Deleting a missing id is not an error.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteRecipe: %w", err)
	}
	return nil
}
