package jobs

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var jobsBucket = []byte("jobs")

// BoltJournal persists pending jobs in a bbolt file.
type BoltJournal struct {
	db *bolt.DB
}

func OpenBoltJournal(path string) (*BoltJournal, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open job journal: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(jobsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create jobs bucket: %w", err)
	}
	return &BoltJournal{db: db}, nil
}

func (j *BoltJournal) Save(job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).Put([]byte(job.ID), data)
	})
}

func (j *BoltJournal) Delete(id string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).Delete([]byte(id))
	})
}

func (j *BoltJournal) Pending() ([]Job, error) {
	var list []Job
	if err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).ForEach(func(k, v []byte) error {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				return fmt.Errorf("unmarshal job %s: %w", k, err)
			}
			list = append(list, job)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return list, nil
}

func (j *BoltJournal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("close job journal: %w", err)
	}
	return nil
}
