package param

import (
	"fmt"
	"net/http"

	"danceschool/entity"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID reads a path parameter holding a Mongo object id.
func ObjectID(r *http.Request, key string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, key)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s", entity.ErrValidation, key)
	}
	return id, nil
}
