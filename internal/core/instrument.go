package core

import (
	"context"
	"pantry/pkg/domain"
	"time"
)

// Instrument wraps every repository in repos so each call reports to rec
// under "<kind>.<operation>".
func Instrument(repos domain.Repositories, rec MetricsRecorder) domain.Repositories {
	if rec == nil {
		return repos
	}
	return domain.Repositories{
		Foods:     &instrumented[domain.Food]{next: repos.Foods, rec: rec, kind: domain.EntityFood},
		Places:    &instrumented[domain.Place]{next: repos.Places, rec: rec, kind: domain.EntityPlace},
		Beverages: &instrumentedBeverages{
			instrumented: instrumented[domain.Beverage]{next: repos.Beverages, rec: rec, kind: domain.EntityBeverage},
			beverages:    repos.Beverages,
		},
	}
}

type instrumented[T any] struct {
	next domain.Repository[T, int64]
	rec  MetricsRecorder
	kind domain.EntityType
}

var (
	_ domain.FoodRepository     = (*instrumented[domain.Food])(nil)
	_ domain.PlaceRepository    = (*instrumented[domain.Place])(nil)
	_ domain.BeverageRepository = (*instrumentedBeverages)(nil)
)

func (r *instrumented[T]) observe(ctx context.Context, op string, started time.Time, err *error) {
	r.rec.Observe(ctx, string(r.kind)+"."+op, *err == nil, time.Since(started))
}

func (r *instrumented[T]) Save(ctx context.Context, entity *T) (_ *T, err error) {
	defer r.observe(ctx, "save", time.Now(), &err)
	return r.next.Save(ctx, entity)
}

func (r *instrumented[T]) SaveAll(ctx context.Context, entities []*T) (_ []*T, err error) {
	defer r.observe(ctx, "save_all", time.Now(), &err)
	return r.next.SaveAll(ctx, entities)
}

func (r *instrumented[T]) SaveAndFlush(ctx context.Context, entity *T) (_ *T, err error) {
	defer r.observe(ctx, "save_and_flush", time.Now(), &err)
	return r.next.SaveAndFlush(ctx, entity)
}

func (r *instrumented[T]) SaveAllAndFlush(ctx context.Context, entities []*T) (_ []*T, err error) {
	defer r.observe(ctx, "save_all_and_flush", time.Now(), &err)
	return r.next.SaveAllAndFlush(ctx, entities)
}

func (r *instrumented[T]) Flush(ctx context.Context) (err error) {
	defer r.observe(ctx, "flush", time.Now(), &err)
	return r.next.Flush(ctx)
}

func (r *instrumented[T]) FindByID(ctx context.Context, id int64) (_ *T, _ bool, err error) {
	defer r.observe(ctx, "find_by_id", time.Now(), &err)
	return r.next.FindByID(ctx, id)
}

func (r *instrumented[T]) ExistsByID(ctx context.Context, id int64) (_ bool, err error) {
	defer r.observe(ctx, "exists_by_id", time.Now(), &err)
	return r.next.ExistsByID(ctx, id)
}

func (r *instrumented[T]) GetReferenceByID(ctx context.Context, id int64) (_ *T, err error) {
	defer r.observe(ctx, "get_reference_by_id", time.Now(), &err)
	return r.next.GetReferenceByID(ctx, id)
}

func (r *instrumented[T]) FindAll(ctx context.Context) (_ []*T, err error) {
	defer r.observe(ctx, "find_all", time.Now(), &err)
	return r.next.FindAll(ctx)
}

func (r *instrumented[T]) FindAllPage(ctx context.Context, req domain.PageRequest) (_ domain.Page[T], err error) {
	defer r.observe(ctx, "find_all_page", time.Now(), &err)
	return r.next.FindAllPage(ctx, req)
}

func (r *instrumented[T]) FindAllByID(ctx context.Context, ids []int64) (_ []*T, err error) {
	defer r.observe(ctx, "find_all_by_id", time.Now(), &err)
	return r.next.FindAllByID(ctx, ids)
}

func (r *instrumented[T]) Count(ctx context.Context) (_ int64, err error) {
	defer r.observe(ctx, "count", time.Now(), &err)
	return r.next.Count(ctx)
}

func (r *instrumented[T]) FindAllSorted(ctx context.Context, sort domain.Sort) (_ []*T, err error) {
	defer r.observe(ctx, "find_all_sorted", time.Now(), &err)
	return r.next.FindAllSorted(ctx, sort)
}

func (r *instrumented[T]) FindAllByExample(ctx context.Context, example domain.Example[T]) (_ []*T, err error) {
	defer r.observe(ctx, "find_all_by_example", time.Now(), &err)
	return r.next.FindAllByExample(ctx, example)
}

func (r *instrumented[T]) FindOneByExample(ctx context.Context, example domain.Example[T]) (_ *T, _ bool, err error) {
	defer r.observe(ctx, "find_one_by_example", time.Now(), &err)
	return r.next.FindOneByExample(ctx, example)
}

func (r *instrumented[T]) CountByExample(ctx context.Context, example domain.Example[T]) (_ int64, err error) {
	defer r.observe(ctx, "count_by_example", time.Now(), &err)
	return r.next.CountByExample(ctx, example)
}

func (r *instrumented[T]) ExistsByExample(ctx context.Context, example domain.Example[T]) (_ bool, err error) {
	defer r.observe(ctx, "exists_by_example", time.Now(), &err)
	return r.next.ExistsByExample(ctx, example)
}

func (r *instrumented[T]) DeleteByID(ctx context.Context, id int64) (err error) {
	defer r.observe(ctx, "delete_by_id", time.Now(), &err)
	return r.next.DeleteByID(ctx, id)
}

func (r *instrumented[T]) Delete(ctx context.Context, entity *T) (err error) {
	defer r.observe(ctx, "delete", time.Now(), &err)
	return r.next.Delete(ctx, entity)
}

func (r *instrumented[T]) DeleteAllByID(ctx context.Context, ids []int64) (err error) {
	defer r.observe(ctx, "delete_all_by_id", time.Now(), &err)
	return r.next.DeleteAllByID(ctx, ids)
}

func (r *instrumented[T]) DeleteAllByIDInBatch(ctx context.Context, ids []int64) (err error) {
	defer r.observe(ctx, "delete_all_by_id_in_batch", time.Now(), &err)
	return r.next.DeleteAllByIDInBatch(ctx, ids)
}

func (r *instrumented[T]) DeleteAllInBatch(ctx context.Context, entities []*T) (err error) {
	defer r.observe(ctx, "delete_all_in_batch", time.Now(), &err)
	return r.next.DeleteAllInBatch(ctx, entities)
}

func (r *instrumented[T]) DeleteAll(ctx context.Context) (err error) {
	defer r.observe(ctx, "delete_all", time.Now(), &err)
	return r.next.DeleteAll(ctx)
}

type instrumentedBeverages struct {
	instrumented[domain.Beverage]
	beverages domain.BeverageRepository
}

func (r *instrumentedBeverages) ListByPlaceID(ctx context.Context, placeID int64) (_ []*domain.Beverage, err error) {
	defer r.observe(ctx, "list_by_place_id", time.Now(), &err)
	return r.beverages.ListByPlaceID(ctx, placeID)
}

func (r *instrumentedBeverages) ListByFoodID(ctx context.Context, foodID int64) (_ []*domain.Beverage, err error) {
	defer r.observe(ctx, "list_by_food_id", time.Now(), &err)
	return r.beverages.ListByFoodID(ctx, foodID)
}
