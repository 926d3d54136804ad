package employeeRepo

import (
	"context"
	"testing"

	"assetdesk/models"
	"assetdesk/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func employeeDoc(id, name, email, role string) bson.D {
	doc := bson.D{
		{Key: "id", Value: id},
		{Key: "name", Value: name},
		{Key: "email", Value: email},
	}
	if role != "" {
		doc = append(doc, bson.E{Key: "role", Value: role})
	}
	return doc
}

func TestMongoEmployeeRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get by email found", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			employeeDoc("u1", "Alice", "alice@example.com", "admin"),
		))

		emp, err := repo.GetByEmail(context.Background(), "alice@example.com")
		require.NoError(mt, err)
		require.NotNil(mt, emp)
		assert.Equal(mt, "u1", emp.ID)
		assert.Equal(mt, models.RoleAdmin, emp.Role)
	})

	mt.Run("get by id missing is nil without error", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		emp, err := repo.GetByID(context.Background(), "nobody")
		require.NoError(mt, err)
		assert.Nil(mt, emp)
	})

	mt.Run("get by id surfaces command errors", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad query",
		}))

		_, err := repo.GetByID(context.Background(), "u1")
		assert.Error(mt, err)
	})

	mt.Run("get by ids keys result by id", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			employeeDoc("u1", "Alice", "alice@example.com", ""),
			employeeDoc("u2", "Bob", "bob@example.com", "user"),
		))

		found, err := repo.GetByIDs(context.Background(), []string{"u1", "u2", "u3"})
		require.NoError(mt, err)
		assert.Len(mt, found, 2)
		assert.Equal(mt, "Bob", found["u2"].Name)
	})

	mt.Run("get by ids with no ids skips the query", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}

		found, err := repo.GetByIDs(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, found)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("list decodes all employees", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			employeeDoc("u1", "Alice", "alice@example.com", "admin"),
			employeeDoc("u2", "Bob", "bob@example.com", ""),
		))

		emps, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, emps, 2)
		assert.Equal(mt, "Alice", emps[0].Name)
		assert.Equal(mt, models.Role(""), emps[1].Role)
	})

	mt.Run("update role", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.UpdateRole(context.Background(), "u1", models.RoleAdmin))
	})

	mt.Run("update role of unknown employee", func(mt *mtest.T) {
		repo := &MongoEmployeeRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.UpdateRole(context.Background(), "ghost", models.RoleAdmin)
		assert.True(mt, utils.IsKind(err, utils.KindNotFound))
	})
}
