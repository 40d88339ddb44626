package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

// dayDocument документ коллекции слотов: один на (user_id, date)
// date хранится как полночь UTC, время слотов - строками ISO-8601
type dayDocument struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID string             `bson:"user_id"`
	Date   time.Time          `bson:"date"`
	Slots  []slotDocument     `bson:"slots"`
}

type slotDocument struct {
	StartTime string `bson:"start_time"`
	EndTime   string `bson:"end_time"`
}

// MongoRepository MongoDB-репозиторий слотов
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{collection: collection}
}

// EnsureIndexes создает уникальный индекс (user_id, date)
// На нем держится ErrDayExists при конкурентном создании записи
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_date_unique"),
	})
	if err != nil {
		return fmt.Errorf("%w: EnsureIndexes - create index: %v", ErrExecQuery, err)
	}
	return nil
}

func (r *MongoRepository) FindRange(ctx context.Context, userID string, startDate time.Time, endDate *time.Time) ([]*domain.DaySlots, error) {
	dateFilter := bson.M{"$gte": domain.NormalizeDate(startDate)}
	if endDate != nil {
		dateFilter["$lte"] = domain.NormalizeDate(*endDate)
	}

	cursor, err := r.collection.Find(ctx,
		bson.M{"user_id": userID, "date": dateFilter},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: FindRange - find: %v", ErrExecQuery, err)
	}

	var docs []dayDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: FindRange - decode: %v", ErrScanRow, err)
	}

	days := make([]*domain.DaySlots, 0, len(docs))
	for _, doc := range docs {
		day, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: FindRange - decode slot: %v", ErrScanRow, err)
		}
		days = append(days, day)
	}

	return days, nil
}

func (r *MongoRepository) FindOne(ctx context.Context, userID string, date time.Time) (*domain.DaySlots, error) {
	var doc dayDocument
	err := r.collection.FindOne(ctx, dayFilter(userID, date)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindOne - find: %v", ErrExecQuery, err)
	}

	day, err := doc.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOne - decode slot: %v", ErrScanRow, err)
	}
	return day, nil
}

func (r *MongoRepository) InsertDay(ctx context.Context, userID string, date time.Time, initial []domain.Slot) error {
	doc := dayDocument{
		UserID: userID,
		Date:   domain.NormalizeDate(date),
		Slots:  make([]slotDocument, 0, len(initial)),
	}
	for _, slot := range initial {
		doc.Slots = append(doc.Slots, newSlotDocument(slot))
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDayExists
		}
		return fmt.Errorf("%w: InsertDay - insert: %v", ErrExecQuery, err)
	}
	return nil
}

// AppendSlot добавляет слот через $push
// Фильтр по slots.start_time $ne делает проверку уникальности начала атомарной
func (r *MongoRepository) AppendSlot(ctx context.Context, userID string, date time.Time, slot domain.Slot) error {
	filter := dayFilter(userID, date)
	filter["slots.start_time"] = bson.M{"$ne": slot.Start.String()}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"slots": newSlotDocument(slot)}})
	if err != nil {
		return fmt.Errorf("%w: AppendSlot - update: %v", ErrExecQuery, err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.dayExists(ctx, userID, date)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDayNotFound
	}
	return ErrDuplicateSlot
}

// ReplaceSlotByStart заменяет слот позиционным оператором slots.$
func (r *MongoRepository) ReplaceSlotByStart(ctx context.Context, userID string, date time.Time, originalStart types.TimeString, newSlot domain.Slot) error {
	filter := dayFilter(userID, date)
	filter["slots.start_time"] = originalStart.String()

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"slots.$": newSlotDocument(newSlot)}})
	if err != nil {
		return fmt.Errorf("%w: ReplaceSlotByStart - update: %v", ErrExecQuery, err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.dayExists(ctx, userID, date)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDayNotFound
	}
	return ErrSlotNotFound
}

// RemoveSlot удаляет слот через $pull; отсутствие совпадения не ошибка
func (r *MongoRepository) RemoveSlot(ctx context.Context, userID string, date time.Time, slot domain.Slot) error {
	_, err := r.collection.UpdateOne(ctx, dayFilter(userID, date), bson.M{"$pull": bson.M{"slots": newSlotDocument(slot)}})
	if err != nil {
		return fmt.Errorf("%w: RemoveSlot - update: %v", ErrExecQuery, err)
	}
	return nil
}

func (r *MongoRepository) dayExists(ctx context.Context, userID string, date time.Time) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, dayFilter(userID, date), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: dayExists - count: %v", ErrExecQuery, err)
	}
	return count > 0, nil
}

func dayFilter(userID string, date time.Time) bson.M {
	return bson.M{"user_id": userID, "date": domain.NormalizeDate(date)}
}

func newSlotDocument(slot domain.Slot) slotDocument {
	return slotDocument{
		StartTime: slot.Start.String(),
		EndTime:   slot.End.String(),
	}
}

func (d dayDocument) toDomain() (*domain.DaySlots, error) {
	day := &domain.DaySlots{
		UserID: d.UserID,
		Date:   domain.NormalizeDate(d.Date),
		Slots:  make([]domain.Slot, 0, len(d.Slots)),
	}
	for _, s := range d.Slots {
		slot, err := decodeSlot(s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		day.Slots = append(day.Slots, slot)
	}
	return day, nil
}

// decodeSlot восстанавливает слот из пары строк ISO-8601
func decodeSlot(start, end string) (domain.Slot, error) {
	startTime, err := types.NewTimeStringFromString(start)
	if err != nil {
		return domain.Slot{}, err
	}
	endTime, err := types.NewTimeStringFromString(end)
	if err != nil {
		return domain.Slot{}, err
	}
	return domain.Slot{Start: startTime, End: endTime}, nil
}
