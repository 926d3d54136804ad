// File: database/repository/employee/employeeMongo.go
package employeeRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assetdesk/models"
	"assetdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoEmployeeRepo implements EmployeeRepository using MongoDB.
type MongoEmployeeRepo struct {
	coll *mongo.Collection
}

// NewMongoEmployeeRepo creates a new instance of EmployeeRepository using MongoDB.
func NewMongoEmployeeRepo(db *mongo.Database) EmployeeRepository {
	repo := &MongoEmployeeRepo{coll: db.Collection("employees")}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("employee indexes not created", zap.Error(err))
	}
	return repo
}

// withTimeout bounds a single query.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (r *MongoEmployeeRepo) findOne(ctx context.Context, filter bson.M) (*models.Employee, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var emp models.Employee
	if err := r.coll.FindOne(ctx, filter).Decode(&emp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

// GetByID retrieves an employee by its ID.
func (r *MongoEmployeeRepo) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	emp, err := r.findOne(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employee with id %s: %w", id, err)
	}
	return emp, nil
}

// GetByEmail retrieves an employee by its email.
func (r *MongoEmployeeRepo) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	emp, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employee with email %s: %w", email, err)
	}
	return emp, nil
}

// GetByIDs retrieves every employee whose ID is in ids.
func (r *MongoEmployeeRepo) GetByIDs(ctx context.Context, ids []string) (map[string]models.Employee, error) {
	out := make(map[string]models.Employee, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var emp models.Employee
		if err := cursor.Decode(&emp); err != nil {
			return nil, fmt.Errorf("failed to decode employee: %w", err)
		}
		out[emp.ID] = emp
	}
	return out, cursor.Err()
}

// List retrieves all employees sorted by name.
func (r *MongoEmployeeRepo) List(ctx context.Context) ([]models.Employee, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve employees: %w", err)
	}
	defer cursor.Close(ctx)

	employees := []models.Employee{}
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, fmt.Errorf("failed to decode employees: %w", err)
	}
	return employees, nil
}

// UpdateRole sets the role of the employee with the given ID.
func (r *MongoEmployeeRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return fmt.Errorf("failed to update employee with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return utils.NotFound("employee not found")
	}
	return nil
}
